// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (persisted state, lifecycle events), contracts
// (interfaces) and the error taxonomy only.
package domain
