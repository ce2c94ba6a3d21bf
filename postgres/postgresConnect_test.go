package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenFailsWithoutServer(t *testing.T) {
	db, err := Open("host=127.0.0.1 port=1 user=photos dbname=photos sslmode=disable connect_timeout=1")
	assert.Error(t, err)
	assert.Nil(t, db)
}
