package provisioning

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/go-git/go-git/v5"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
)

// CloneRepos clones every repo in repos into subdirectories of destRoot,
// named after the last path segment of each repo's URL. This replaces the
// original's plain `git clone` shell-out with go-git so cloning needs no
// external git binary inside the base zone's host.
func CloneRepos(ctx context.Context, out io.Writer, destRoot string, repos []pipeline.ValidatedRepo) error {
	for _, repo := range repos {
		dest := filepath.Join(destRoot, repoDirName(repo.URL))
		fmt.Fprintf(out, "%s...", color.CyanString("Cloning "+repo.URL))
		_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{URL: repo.URL})
		if err != nil {
			fmt.Fprintln(out, color.RedString(" FAILED"))
			return &pipeline.DomainError{Code: pipeline.ErrCodeProvisioning, Message: "could not clone repository", Cause: err, Context: map[string]interface{}{"url": repo.URL}}
		}
		fmt.Fprintln(out, color.GreenString(" DONE"))
	}
	return nil
}

func repoDirName(url string) string {
	name := filepath.Base(url)
	ext := filepath.Ext(name)
	if ext == ".git" {
		name = name[:len(name)-len(ext)]
	}
	if name == "" || name == "." || name == "/" {
		return "repo"
	}
	return name
}
