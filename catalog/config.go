package catalog

import (
	"os"
	"strings"
)

// DefaultDataPath is used when neither a flag nor JOBBENCH_DATA is set.
const DefaultDataPath = "./data/imdb"

// Config locates table files. DataPath is a local directory or an
// http(s) base URL; a table is read from <DataPath>/<table>.parquet or,
// locally, from every *.parquet part in <DataPath>/<table>/.
type Config struct {
	DataPath string
	// Tables restricts preloading; empty means load on demand.
	Tables []string
}

// ConfigFromEnv reads JOBBENCH_DATA and JOBBENCH_TABLES (comma separated).
func ConfigFromEnv() Config {
	cfg := Config{DataPath: DefaultDataPath}
	if path := os.Getenv("JOBBENCH_DATA"); path != "" {
		cfg.DataPath = path
	}
	if tables := os.Getenv("JOBBENCH_TABLES"); tables != "" {
		for _, name := range strings.Split(tables, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Tables = append(cfg.Tables, name)
			}
		}
	}
	return cfg
}
