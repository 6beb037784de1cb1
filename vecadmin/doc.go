// Package vecadmin guards and runs the administrative commands of the
// chatbot: listing and editing intents, unlearning patterns, retraining the
// vector cache and inspecting its change log.
package vecadmin
