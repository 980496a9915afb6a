package scenario

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"apiprobe/internal/config"
	"apiprobe/internal/http"
	"apiprobe/pkg/jsonschema"
)

// collectionLimit caps how many documents of a collection the scenario
// inspects, to keep runs fast.
const collectionLimit = 10

// JSONPlaceholder exercises the post/comment/user API: read, schema
// validation, a full CRUD cycle, referential consistency, and negative
// cases.
func JSONPlaceholder() Scenario {
	return Scenario{Name: "JSONPlaceholder API", Run: runJSONPlaceholder}
}

func runJSONPlaceholder(ctx context.Context, deps *Deps) error {
	session, err := deps.Registry.Get(config.TargetJSONPlaceholder)
	if err != nil {
		return err
	}

	posts, err := fetchCollection(ctx, session, "/posts")
	if err != nil {
		return err
	}
	comments, err := fetchCollection(ctx, session, "/comments")
	if err != nil {
		return err
	}
	users, err := fetchCollection(ctx, session, "/users")
	if err != nil {
		return err
	}

	if err := crudCycle(ctx, deps, session, posts); err != nil {
		return err
	}
	if err := validatePostSchemas(posts); err != nil {
		return err
	}
	if err := checkRelationships(deps, posts, comments, users); err != nil {
		return err
	}
	return negativeCases(ctx, session)
}

// fetchCollection GETs a collection endpoint and returns its first
// collectionLimit elements.
func fetchCollection(ctx context.Context, session *http.Client, path string) ([]gjson.Result, error) {
	resp, err := session.Do(ctx, http.NewRequest("GET", path))
	if err != nil {
		return nil, step("GET "+path, err)
	}
	if err := resp.ExpectStatus(200); err != nil {
		return nil, step("GET "+path, err)
	}

	parsed := gjson.ParseBytes(resp.GetBody())
	if !parsed.IsArray() {
		return nil, fmt.Errorf("GET %s: expected a JSON array", path)
	}
	items := parsed.Array()
	if len(items) > collectionLimit {
		items = items[:collectionLimit]
	}
	return items, nil
}

func crudCycle(ctx context.Context, deps *Deps, session *http.Client, posts []gjson.Result) error {
	// READ: the already fetched posts must carry the expected fields.
	for _, post := range posts {
		for _, field := range []string{"userId", "id", "title", "body"} {
			if !post.Get(field).Exists() {
				return fmt.Errorf("READ posts: post %s missing field %q", post.Get("id").Raw, field)
			}
		}
	}

	// CREATE
	resp, err := session.Do(ctx, http.NewRequest("POST", "/posts").WithBody(config.ValidPostPayload()))
	if err != nil {
		return step("CREATE post", err)
	}
	if err := resp.ExpectStatus(200, 201); err != nil {
		return step("CREATE post", err)
	}
	createdID := gjson.GetBytes(resp.GetBody(), "id")
	if !createdID.Exists() {
		return fmt.Errorf("CREATE post: created post has no id")
	}

	// UPDATE
	update := map[string]interface{}{
		"id":     1,
		"title":  "Title updated by QA",
		"body":   "Content modified by the test run",
		"userId": 1,
	}
	resp, err = session.Do(ctx, http.NewRequest("PUT", "/posts/1").WithBody(update))
	if err != nil {
		return step("UPDATE post", err)
	}
	if err := resp.ExpectStatus(200); err != nil {
		return step("UPDATE post", err)
	}

	// DELETE
	resp, err = session.Do(ctx, http.NewRequest("DELETE", fmt.Sprintf("/posts/%d", createdID.Int())))
	if err != nil {
		return step("DELETE post", err)
	}
	if err := resp.ExpectStatus(200, 204); err != nil {
		return step("DELETE post", err)
	}

	deps.Log.Info().Msg("CRUD cycle completed")
	return nil
}

func validatePostSchemas(posts []gjson.Result) error {
	schema, err := jsonschema.Compile(config.PostSchema)
	if err != nil {
		return err
	}
	for i, post := range posts {
		if err := jsonschema.ValidateCompiled(post.Raw, schema); err != nil {
			return fmt.Errorf("post #%d violates schema: %w", i+1, err)
		}
	}
	return nil
}

func checkRelationships(deps *Deps, posts, comments, users []gjson.Result) error {
	postIDs := idSet(posts, "id")
	commentPostIDs := idSet(comments, "postId")
	userIDs := idSet(users, "id")
	postUserIDs := idSet(posts, "userId")

	if !intersects(postIDs, commentPostIDs) {
		return fmt.Errorf("relationships: no comment references a fetched post")
	}
	if !intersects(userIDs, postUserIDs) {
		return fmt.Errorf("relationships: no post references a fetched user")
	}

	deps.Log.Info().
		Int("posts", len(postIDs)).
		Int("users", len(userIDs)).
		Msg("referential consistency verified")
	return nil
}

func negativeCases(ctx context.Context, session *http.Client) error {
	// Lookup of an id outside the known range.
	resp, err := session.Do(ctx, http.NewRequest("GET", "/posts/9999"))
	if err != nil {
		return step("GET nonexistent post", err)
	}
	if err := resp.ExpectStatus(404); err != nil {
		return step("GET nonexistent post", err)
	}

	// The mock service validates laxly and answers 201 even for broken
	// payloads; a strict API would answer 400. Both are tolerated here.
	resp, err = session.Do(ctx, http.NewRequest("POST", "/posts").WithBody(config.InvalidPostPayload()))
	if err != nil {
		return step("CREATE with invalid types", err)
	}
	if err := resp.ExpectStatus(200, 201, 400); err != nil {
		return step("CREATE with invalid types", err)
	}

	// PUT against the collection rather than a resource.
	resp, err = session.Do(ctx, http.NewRequest("PUT", "/posts").WithBody(config.ValidPostPayload()))
	if err != nil {
		return step("PUT on collection", err)
	}
	if err := resp.ExpectStatus(404, 405); err != nil {
		return step("PUT on collection", err)
	}

	return nil
}
