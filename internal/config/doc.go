// Package config provides the configuration tree shared by every mloq
// generation command, the persisted file format and type coercion.
//
// # Slot States
//
// Every path of a Tree holds a Value in one of three states:
//   - Concrete: a known value of any shape (scalar, list, mapping)
//   - Required: not supplied yet, written as "???" in files
//   - Interpolation: a deferred reference such as "${globals.owner}"
//
// Values read from files, environment variables or defaults are tagged once
// with FromRaw; nothing downstream compares strings against the markers.
//
// # Interpolation
//
// An expression that is exactly one reference resolves to the referenced
// value with its type preserved:
//
//	docker:
//	  requirements: ${requirements.requirements}   # stays a list
//
// References embedded in a longer string are substituted as text:
//
//	globals:
//	  project_url: https://github.com/${globals.owner}/${globals.project_name}
//
// References may cross namespaces and may point inside a concrete mapping
// (${docker.env.PYTHONPATH}). Resolution tracks the paths being resolved and
// fails with InterpolationCycleError as soon as one repeats.
//
// # Persisted File
//
// Load and Save use YAML through gopkg.in/yaml.v3, keeping the key order of
// the document. JSON and JSONC files are accepted by Load. The markers are
// written back verbatim, so a file with unresolved values round-trips.
//
// # Coercion
//
// Coerce converts raw values to the declared Type of a parameter using
// github.com/spf13/cast for scalars. Comma separated strings become string
// lists (ParseList). Coerce is idempotent.
package config
