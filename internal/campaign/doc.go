// Package campaign holds the progression engine for a campaign session: the
// version ledger, lock registry, staleness evaluation and the scene gate.
//
// A session moves through ordered stages. Background and Characters are
// boolean-locked blocks whose content writes bump the ledger; the MacroChain
// and every SceneDetail carry a richer status and record the ledger
// fingerprint they were generated against. Nothing in this package performs
// I/O: callers load a session, apply one transition and persist the result.
package campaign
