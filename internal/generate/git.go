package generate

import (
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/resolver"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/vcs"
)

// GitDefaults turns what the repository knows into caller defaults for the
// globals namespace. The project URL is only suggested while owner and
// project name still match the origin remote.
func GitDefaults(info vcs.Info) map[string]map[string]resolver.DefaultFunc {
	if !info.IsRepo() {
		return nil
	}
	defaults := make(map[string]resolver.DefaultFunc)
	for name, value := range info.Defaults() {
		defaults[name] = func(map[string]any) any { return value }
	}
	if url := info.URL(); url != "" {
		_, owner, repo, _ := vcs.ParseRemote(info.Remote)
		defaults["project_url"] = func(resolved map[string]any) any {
			if resolved["owner"] != owner || resolved["project_name"] != repo {
				return nil
			}
			return url
		}
	}
	return map[string]map[string]resolver.DefaultFunc{Globals: defaults}
}
