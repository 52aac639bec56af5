package all

import (
	"slices"
	"testing"

	"silorecon/internal/storage"
)

func TestAllKindsRegistered(t *testing.T) {
	t.Parallel()

	kinds := storage.ListKinds()
	for _, want := range []string{"memory", "mssql", "mysql", "postgres", "snowflake", "sqlite"} {
		if !slices.Contains(kinds, want) {
			t.Errorf("kind %q not registered; have %v", want, kinds)
		}
	}
}
