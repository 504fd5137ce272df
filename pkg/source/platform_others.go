//go:build !unix

package source

func detectSysname() (string, bool) {
	return "", false
}
