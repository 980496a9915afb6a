package config

// JSON Schemas for the two response shapes the suite validates. Declared
// once, referenced by many validations.

// PostSchema is the contract for a JSONPlaceholder post. Unknown fields are
// rejected.
const PostSchema = `{
  "type": "object",
  "properties": {
    "userId": {"type": "integer", "minimum": 1},
    "id": {"type": "integer", "minimum": 1},
    "title": {"type": "string", "minLength": 1},
    "body": {"type": "string", "minLength": 1}
  },
  "required": ["userId", "id", "title", "body"],
  "additionalProperties": false
}`

// UserSchema is the contract for a ReqRes user. Additional fields are
// permitted.
const UserSchema = `{
  "type": "object",
  "properties": {
    "id": {"type": "integer"},
    "email": {"type": "string", "format": "email"},
    "first_name": {"type": "string"},
    "last_name": {"type": "string"},
    "avatar": {"type": "string", "format": "uri"}
  },
  "required": ["id", "email", "first_name", "last_name"],
  "additionalProperties": true
}`

// ValidPostPayload creates a well-formed post.
func ValidPostPayload() map[string]interface{} {
	return map[string]interface{}{
		"userId": 1,
		"title":  "Test Post - QA Automation",
		"body":   "Post created by the automated QA suite",
	}
}

// ValidUserPayload creates a well-formed user.
func ValidUserPayload() map[string]interface{} {
	return map[string]interface{}{
		"name": "QA Tester",
		"job":  "Quality Assurance Engineer",
	}
}

// ValidAuthPayload is a credential pair the auth endpoint accepts.
func ValidAuthPayload() map[string]interface{} {
	return map[string]interface{}{
		"email":    "eve.holt@reqres.in",
		"password": "cityslicka",
	}
}

// ValidRegisterPayload is a credential pair the register endpoint accepts.
func ValidRegisterPayload() map[string]interface{} {
	return map[string]interface{}{
		"email":    "eve.holt@reqres.in",
		"password": "pistol",
	}
}

// InvalidPostPayload has the wrong type for every field.
func InvalidPostPayload() map[string]interface{} {
	return map[string]interface{}{
		"userId": "string_instead_of_int",
		"title":  12345,
		"body":   nil,
	}
}

// AuthMissingPassword is a login/register payload without the password field.
func AuthMissingPassword() map[string]interface{} {
	return map[string]interface{}{
		"email": "peter@klaven",
	}
}
