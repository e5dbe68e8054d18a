package guild

// 攻略难度 1-5。
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

var difficultyLabels = [...]string{
	1: "入门",
	2: "简单",
	3: "进阶",
	4: "困难",
	5: "地狱",
}

var _ = [1]struct{}{}[len(difficultyLabels)-(MaxDifficulty+1)]

// ValidDifficulty 报告难度是否在允许区间内。
func ValidDifficulty(level int) bool {
	return level >= MinDifficulty && level <= MaxDifficulty
}

// DifficultyLabel 返回难度中文描述，越界时返回空串。
func DifficultyLabel(level int) string {
	if !ValidDifficulty(level) {
		return ""
	}
	return difficultyLabels[level]
}
