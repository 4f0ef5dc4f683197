// Package tokenizer provides token counting for chat messages.
//
// A [Tokenizer] counts tokens for plain text and whole message lists,
// including per-message overhead. [TiktokenTokenizer] wraps tiktoken for
// OpenAI-family models; [EstimatorTokenizer] is a character-ratio fallback
// used when no exact tokenizer is registered for a model.
package tokenizer
