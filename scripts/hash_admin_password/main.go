package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jinxiguild/internal/service"
)

// 生成 ADMIN_PASSWORD_HASH：go run ./scripts/hash_admin_password <密码>
// 不带参数时从标准输入读取一行。
func main() {
	password := ""
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "管理员密码: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatal("读取密码失败:", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := service.HashAdminPassword(password)
	if err != nil {
		log.Fatal("密码加密失败:", err)
	}

	fmt.Println(hash)
	fmt.Fprintln(os.Stderr, "将上面的值写入 ADMIN_PASSWORD_HASH 环境变量")
}
