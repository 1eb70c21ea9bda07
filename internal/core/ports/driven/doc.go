// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - TokenStore: Persistence for the access/refresh token pair
//   - JobPlatform: The hh.ru API (token grants and résumé publishing)
//   - Notifier: Operator notification channel
//   - SchedulerStore: Scheduled task state and run history
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - MetricsRecorder: Tick and call counters. Nil records nothing.
//   - AuthCodeSource: Authorization codes for the first token grant.
//     Without it, initial authorization fails with ErrNotConfigured.
//   - RefreshLock: Cross-process guard around a refresh cycle.
//     Nil serialises cycles within the process only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
