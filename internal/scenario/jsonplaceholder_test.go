package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONPlaceholderScenario(t *testing.T) {
	posts := newPostsServer(nil)
	defer posts.Close()
	users := newUsersServer()
	defer users.Close()

	deps := testDeps(posts.URL, users.URL)
	defer deps.Registry.CloseAll()

	err := JSONPlaceholder().Run(context.Background(), deps)
	assert.NoError(t, err)
}

func TestJSONPlaceholderScenarioFlagsSchemaViolation(t *testing.T) {
	posts := newPostsServer(func(posts []post) []post {
		posts[1]["userId"] = "not-a-number"
		return posts
	})
	defer posts.Close()
	users := newUsersServer()
	defer users.Close()

	deps := testDeps(posts.URL, users.URL)
	defer deps.Registry.CloseAll()

	err := JSONPlaceholder().Run(context.Background(), deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")
}

func TestJSONPlaceholderScenarioFlagsMissingField(t *testing.T) {
	posts := newPostsServer(func(posts []post) []post {
		delete(posts[0], "body")
		return posts
	})
	defer posts.Close()
	users := newUsersServer()
	defer users.Close()

	deps := testDeps(posts.URL, users.URL)
	defer deps.Registry.CloseAll()

	err := JSONPlaceholder().Run(context.Background(), deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "body")
}

func TestJSONPlaceholderScenarioFlagsBrokenRelationships(t *testing.T) {
	posts := newPostsServer(func(posts []post) []post {
		for _, p := range posts {
			p["id"] = p["id"].(int) + 1000
		}
		return posts
	})
	defer posts.Close()
	users := newUsersServer()
	defer users.Close()

	deps := testDeps(posts.URL, users.URL)
	defer deps.Registry.CloseAll()

	err := JSONPlaceholder().Run(context.Background(), deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relationships")
}
