// Package intent models the chatbot dataset: a JSON document holding a list
// of intents, each a tag with example trigger phrases (patterns) and the
// candidate responses returned when one of them matches.
//
// The file layout is
//
//	{"intents": [{"tag": "greeting", "patterns": ["hi"], "responses": ["Hello!"]}]}
package intent
