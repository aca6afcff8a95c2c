// Package model defines the provider-agnostic chat abstraction role workers
// use to call language models.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Normalize message roles across vendors
//   - Facilitate lightweight mocking for tests (MockProvider)
//
// Providers (e.g. OpenAI, Anthropic) implement the Provider interface from
// this package so higher layers remain decoupled from vendor SDKs.
package model
