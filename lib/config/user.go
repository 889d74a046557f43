package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
)

const WorkDirName = "arch-suite-work"

// InvokingUser is the real, non-privileged user who started the program,
// even when it runs under sudo.
type InvokingUser struct {
	Name string
	Home string
	UID  int
	GID  int
}

// WorkDir returns the directory artifacts are written to.
func (u *InvokingUser) WorkDir() string {
	return filepath.Join(u.Home, WorkDirName)
}

// LookupInvokingUser returns the user named by SUDO_USER, or the current
// user when not running under sudo.
func LookupInvokingUser() (*InvokingUser, error) {
	return lookupInvokingUser(os.Getenv("SUDO_USER"), user.Lookup,
		user.Current)
}

func lookupInvokingUser(sudoUser string,
	lookup func(string) (*user.User, error),
	current func() (*user.User, error)) (*InvokingUser, error) {
	var u *user.User
	var err error
	if sudoUser != "" && sudoUser != "root" {
		u, err = lookup(sudoUser)
	} else {
		u, err = current()
	}
	if err != nil {
		return nil, fmt.Errorf("error finding invoking user: %w", err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, fmt.Errorf("bad uid %q for %s", u.Uid, u.Username)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return nil, fmt.Errorf("bad gid %q for %s", u.Gid, u.Username)
	}
	return &InvokingUser{Name: u.Username, Home: u.HomeDir, UID: uid,
		GID: gid}, nil
}
