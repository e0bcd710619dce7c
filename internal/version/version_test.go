package version

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeGit(tagged bool, describe string) func(...string) (string, error) {
	return func(args ...string) (string, error) {
		switch args[0] {
		case "rev-parse":
			return ".git", nil
		case "describe":
			for _, a := range args {
				if a == "--exact-match" {
					if tagged {
						return "v1.0.0", nil
					}
					return "", fmt.Errorf("no tag")
				}
			}
			return describe, nil
		default:
			return "", fmt.Errorf("unexpected git subcommand %q", args[0])
		}
	}
}

func TestResolveVersionTaggedRelease(t *testing.T) {
	t.Parallel()
	require.Equal(t, "1.0.0", resolveVersion("1.0.0", fakeGit(true, "")))
}

func TestResolveVersionCommitsAfterTag(t *testing.T) {
	t.Parallel()
	require.Equal(t, "1.0.0-3-gabcdef", resolveVersion("1.0.0", fakeGit(false, "v1.0.0-3-gabcdef")))
}

func TestResolveVersionNotAGitRepo(t *testing.T) {
	t.Parallel()
	notARepo := func(...string) (string, error) { return "", fmt.Errorf("not a git repository") }
	require.Equal(t, "1.0.0", resolveVersion("1.0.0", notARepo))
	require.Equal(t, "0.0.0", resolveVersion("", notARepo))
}
