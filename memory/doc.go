/*
Package memory composes multiple conversational memory sources into a single
ordered chat history suitable for presenting to a language model.

# Overview

A [Source] is any backing store exposing an ordered message history through
Get / GetAll / Put / Set / Reset. [ComposableMemory] holds one primary source
(the canonical, mutated history) and zero or more secondary sources
(read-mostly context providers, such as retrieval-backed memories). On read it
merges the secondary histories into the primary history's leading system
message; on write it fans out to every source in order.

# Core types

  - [ComposableMemory]: the composition coordinator
  - [Source]: the capability set every memory source implements
  - [GetOption]: pass-through retrieval options forwarded to every source

# Source implementations

  - [ChatBuffer]: in-memory buffer with optional token-limit windowing
  - [RedisChatStore]: redis-backed history
  - [GormChatStore]: SQL-backed history via gorm
  - [NewSource]: config-driven factory over the above

# Composition semantics

Secondary histories are rendered into a single injection block delimited by
[DefaultIntroHistoryMessage] and [DefaultOutroHistoryMessage] and spliced into
the leading system message. Re-composition strips any previously injected
block by splitting on the intro marker, so repeated Get calls are idempotent
rather than accumulating. The coordinator never mutates the underlying
sources on read.
*/
package memory
