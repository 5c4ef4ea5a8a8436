// Package i18n looks up translated strings by source tag.
//
// Translations live in ".lang" files named after their language
// ("en.lang", "fr.lang"), one "key=value" pair per line, with "#" comments.
// A Catalog reads two directories: the framework library's strings and the
// module's own strings. Text prefers the module string, then the library
// string, and falls back to the tag itself.
//
// Each directory is read in the selected language with the default
// language underneath it, so untranslated keys show the default text.
package i18n
