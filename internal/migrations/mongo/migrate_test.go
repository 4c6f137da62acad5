package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCollections(t *testing.T) {
	names := map[string]bool{}
	for _, def := range Collections() {
		names[def.Name] = true
		assert.NotEmpty(t, def.Indexes, def.Name)
		require.Contains(t, def.Validator, "$jsonSchema", def.Name)
	}
	assert.Equal(t, map[string]bool{"Tenants": true, "Principals": true, "Services": true, "Bookings": true}, names)
}

func uniqueKeys(models []mongo.IndexModel) [][]string {
	var out [][]string
	for _, m := range models {
		if m.Options == nil || m.Options.Unique == nil || !*m.Options.Unique {
			continue
		}
		var keys []string
		for _, e := range m.Keys.(bson.D) {
			keys = append(keys, e.Key)
		}
		out = append(out, keys)
	}
	return out
}

func TestUniqueIndexes(t *testing.T) {
	assert.ElementsMatch(t, [][]string{{"email"}, {"subdomain"}}, uniqueKeys(TenantsIndexes))
	assert.Equal(t, [][]string{{"tenant_id", "email"}}, uniqueKeys(PrincipalsIndexes))
}

func TestPrincipalsGeoIndex(t *testing.T) {
	var found bool
	for _, m := range PrincipalsIndexes {
		keys := m.Keys.(bson.D)
		if len(keys) == 1 && keys[0].Key == "address.location" {
			found = keys[0].Value == "2dsphere"
		}
	}
	assert.True(t, found)
}
