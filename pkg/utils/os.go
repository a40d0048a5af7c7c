package utils

import (
	"io/fs"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

type OsArch int32

const (
	Arch_Unknown OsArch = iota
	Arch_x86_64
	Arch_Arm_64
	Arch_Other
)

// DetectArchitecture detects the architecture of the system.
func DetectArchitecture() OsArch {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return Arch_Unknown
	}
	machine := strings.Trim(string(utsname.Machine[:]), "\x00")
	switch machine {
	case "x86_64", "amd64":
		return Arch_x86_64
	case "arm64", "aarch64":
		return Arch_Arm_64
	}
	return Arch_Other
}

// String returns the string representation of the OsArch.
func (o OsArch) String() string {
	return [...]string{"unknown", "x86_64", "arm64", "other"}[o]
}

// FileExists returns if the given path exists.
func FileExists(filePath string) (bool, fs.FileInfo) {
	stat, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	return true, stat
}

// IsDir returns if the given file is directory.
func IsDir(fileInfo fs.FileInfo) bool {
	return fileInfo.Mode()&fs.ModeDir != 0
}
