package file

import "os"

// Exists returns a bool indicating if the specified file exists or not. It
// returns false if any errors are encountered.
func Exists(file string) bool {
	if _, err := os.Stat(file); err != nil {
		return false
	}
	return true
}
