package gateutils

import (
	_ "embed"
	"strings"
)

//go:generate sh -c "printf %s $(git rev-parse HEAD) > githash.txt"
//go:embed githash.txt
var gitHash string

func GetGitHash() string {
	hash := strings.TrimSpace(gitHash)
	if hash == "" {
		return "dev"
	}
	return hash
}
