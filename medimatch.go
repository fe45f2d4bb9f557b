// Package medimatch provides a conversational doctor finder. It interprets a
// transcribed utterance with a language model, searches a doctor directory
// website for matching practitioners, and returns a ranked, deduplicated list
// of doctors attached to a chat session.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, gemini/, sqlite/).
package medimatch
