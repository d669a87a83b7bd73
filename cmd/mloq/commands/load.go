package commands

import (
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/config"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/generate"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/logging"
)

// loadTree merges, lowest priority first, the global config file, the
// mloq.yaml of dir and the --config file, then registers every namespace.
func loadTree(dir string) (*config.Tree, error) {
	tree := config.NewTree()

	for _, path := range optionalSources(dir) {
		t, err := config.LoadOptional(fsys, path)
		if err != nil {
			return nil, err
		}
		tree = tree.Merge(t)
		logging.Debug().Str("path", path).Int("slots", len(t.Paths())).Msg("config loaded")
	}

	if configFile != "" {
		t, err := config.Load(fsys, configFile)
		if err != nil {
			return nil, err
		}
		tree = tree.Merge(t)
		logging.Debug().Str("path", configFile).Int("slots", len(t.Paths())).Msg("config loaded")
	}

	generate.Register(tree)
	return tree, nil
}

// optionalSources are the configuration files that may be absent.
func optionalSources(dir string) []string {
	sources := []string{config.GlobalConfigPath()}
	if dir != "" {
		sources = append(sources, config.ProjectConfigPath(dir))
	}
	return sources
}

// configSources lists every file loadTree reads.
func configSources(dir string) []string {
	sources := optionalSources(dir)
	if configFile != "" {
		sources = append(sources, configFile)
	}
	return sources
}
