// Package strategy holds the pool of negotiation strategies offered to turn
// generators as suggestions. Pools can be loaded from YAML files or built in
// code; sampling is seeded so a run always sees the same suggestions when
// replayed.
package strategy
