package bible

// Testament codes as used by the client and stored on games.
const (
	TestamentOld  = 1 // books 1-39
	TestamentNew  = 2 // books 40-66
	TestamentBoth = 3
)

// ValidTestament reports whether code is one of the three testament codes.
func ValidTestament(code int) bool {
	return code >= TestamentOld && code <= TestamentBoth
}

// BookRange maps a testament code to the inclusive [min, max] book positions.
func BookRange(code int) (min, max int) {
	min, max = 1, 66
	if code == TestamentNew {
		min = 40
	}
	if code == TestamentOld {
		max = 39
	}
	return min, max
}
