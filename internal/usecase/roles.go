package usecase

import (
	"path"
	"strings"

	"github.com/naka-gawa/github-dashboard/internal/domain"
)

var (
	docExtensions = map[string]bool{".md": true, ".mdx": true, ".rst": true, ".adoc": true, ".txt": true}
	docNames      = map[string]bool{"license": true, "changelog": true, "contributing": true, "authors": true}

	infraNames = map[string]bool{
		"dockerfile": true, "makefile": true, "docker-compose.yml": true, "docker-compose.yaml": true,
		"jenkinsfile": true, "procfile": true, "vagrantfile": true, ".gitlab-ci.yml": true,
	}
	infraExtensions = map[string]bool{".tf": true, ".tfvars": true, ".hcl": true, ".dockerfile": true}
	infraDirs       = []string{".github/workflows/", ".circleci/", "k8s/", "kubernetes/", "helm/", "charts/", "terraform/", "deploy/", "infra/", "ansible/"}

	configExtensions = map[string]bool{
		".yml": true, ".yaml": true, ".json": true, ".toml": true, ".ini": true,
		".cfg": true, ".conf": true, ".env": true, ".properties": true, ".xml": true, ".gradle": true,
	}
	configNames = map[string]bool{
		"go.mod": true, "go.sum": true, "package-lock.json": true, "yarn.lock": true, "pnpm-lock.yaml": true,
		".gitignore": true, ".editorconfig": true, ".npmrc": true, ".eslintrc": true, ".prettierrc": true,
	}

	frontendExtensions = map[string]bool{
		".tsx": true, ".jsx": true, ".ts": true, ".js": true, ".mjs": true, ".vue": true, ".svelte": true,
		".css": true, ".scss": true, ".sass": true, ".less": true, ".html": true, ".htm": true,
	}
	backendExtensions = map[string]bool{
		".go": true, ".java": true, ".kt": true, ".py": true, ".rb": true, ".rs": true, ".cs": true,
		".php": true, ".scala": true, ".c": true, ".cc": true, ".cpp": true, ".h": true, ".sql": true,
		".ex": true, ".exs": true, ".swift": true, ".proto": true,
	}
)

// CategorizePath decides which role a changed file belongs to. Rules are
// checked in the order test, documentation, infrastructure, configuration,
// frontend, backend.
func CategorizePath(p string) domain.Role {
	lower := strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	base := path.Base(lower)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	padded := "/" + lower

	switch {
	case isTestPath(padded, base):
		return domain.RoleTest
	case docExtensions[ext], docNames[stem], strings.Contains(padded, "/docs/"), strings.Contains(padded, "/doc/"):
		return domain.RoleDocumentation
	case infraNames[base], infraExtensions[ext], hasDirPrefix(padded, infraDirs):
		return domain.RoleInfrastructure
	case configNames[base], configExtensions[ext], strings.Contains(base, ".config."), strings.HasPrefix(base, ".env"):
		return domain.RoleConfiguration
	case frontendExtensions[ext]:
		return domain.RoleFrontend
	case backendExtensions[ext]:
		return domain.RoleBackend
	}
	return domain.RoleOther
}

func isTestPath(padded, base string) bool {
	for _, dir := range []string{"/test/", "/tests/", "/__tests__/", "/spec/", "/testdata/", "/e2e/"} {
		if strings.Contains(padded, dir) {
			return true
		}
	}
	return strings.HasSuffix(base, "_test.go") ||
		strings.Contains(base, ".test.") ||
		strings.Contains(base, ".spec.") ||
		strings.HasPrefix(base, "test_")
}

func hasDirPrefix(padded string, dirs []string) bool {
	for _, d := range dirs {
		if strings.Contains(padded, "/"+d) {
			return true
		}
	}
	return false
}

// CategorizeCommit attributes a commit to the role owning most of its
// files. Ties go to the role listed first in domain.Roles; a commit with no
// files is Other.
func CategorizeCommit(files []string) domain.Role {
	if len(files) == 0 {
		return domain.RoleOther
	}
	var counts domain.RoleCountRecord
	for _, f := range files {
		counts.Add(CategorizePath(f))
	}
	best := domain.RoleOther
	bestCount := 0
	for _, r := range domain.Roles {
		if c := counts.Count(r); c > bestCount {
			best, bestCount = r, c
		}
	}
	return best
}

// CountRoles builds the role record for a list of commits.
func CountRoles(commits []domain.CommitChange) domain.RoleCountRecord {
	var record domain.RoleCountRecord
	for _, c := range commits {
		record.Add(CategorizeCommit(c.Files))
	}
	return record
}

// SumLines totals the added and deleted lines of commits.
func SumLines(commits []domain.CommitChange) (additions, deletions int) {
	for _, c := range commits {
		additions += c.Additions
		deletions += c.Deletions
	}
	return additions, deletions
}
