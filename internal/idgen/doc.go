// Package idgen produces identifiers for entities and runs. Entity ids come
// from per-kind sequences so that two runs fed with the same submissions yield
// identical ids; run ids are random UUIDs. It lives under `internal` because
// callers should treat identifiers as opaque strings.
package idgen
