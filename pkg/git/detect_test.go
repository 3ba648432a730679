package git_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keelhq/warden/pkg/git"
)

func TestGit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Git Suite")
}

var _ = Describe("RepoName", func() {
	It("returns a non-empty name wherever it runs", func() {
		Expect(git.RepoName()).NotTo(BeEmpty())
	})

	It("falls back to the working directory name outside a repository", func() {
		dir, err := os.MkdirTemp("", "warden-git-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		wd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.Chdir, wd)
		Expect(os.Chdir(dir)).To(Succeed())

		Expect(git.RepoName()).To(Equal(filepath.Base(dir)))
	})
})
