// Package merge combines two configuration trees into one.
//
// Three built-in strategies are provided as values of [Method]:
//
//   - [Simple]: the override wins unless it is null. Mappings are updated
//     shallowly (a nested mapping in the override replaces the base one) and
//     sequences are merged position by position.
//   - [Deep]: everything is merged recursively. Sequences are unioned: new
//     scalar and sequence elements are appended once, and mapping elements are
//     reconciled by position when [Options.MergeLists] is set and the two
//     mappings share at least one key.
//   - [Substitute]: scalars and sequences replace the base outright, whatever
//     its kind; only mappings merge, recursively.
//
// Callers may supply their own [Strategy]. Merges take exclusive ownership of
// the base tree and update it in place; the returned node may be the base or
// the override. Pairings a strategy has no rule for fail with
// [UnsupportedMergeError].
package merge
