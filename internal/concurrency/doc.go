// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package concurrency holds low-level primitives shared by the
// higher-level pool packages but not meant for direct embedder use.
package concurrency
