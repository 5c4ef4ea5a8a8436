// Package builtin provides the modules every installation carries.
//
//   - Global owns framework-wide preferences under storage.GlobalKey.
//   - Version checks settings migrations at load and shows the new-version
//     notice once, after a configured host function runs.
//   - Debug can make text lookups return their raw tags. Its toggles live
//     in the local cache, not in synced settings.
package builtin
