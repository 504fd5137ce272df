//go:build unix

package source

import "golang.org/x/sys/unix"

func detectSysname() (string, bool) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", false
	}
	return platformFromSysname(unix.ByteSliceToString(uts.Sysname[:]))
}
