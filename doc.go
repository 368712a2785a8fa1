// Package tvl computes a time-weighted "value held" score, in TVL points, per
// account from append-only ledgers of balance changes.
//
// Holding one USD of value for one day earns one point, holding one NFT for one
// day earns one point, and every day is further weighted by a multiplier keyed
// by its calendar year (see Multipliers).
//
// The core functionalities include:
//   - Ordered grouping: a Reducer consumes one ledger stream sorted by account,
//     asset and date, and tracks one Segment per (account, asset) group.
//   - Daily integration: an Integrator values a constant balance over a
//     half-open range of days against a PriceTable.
//   - Balance sanitization: a Sanitizer rejects negative balances, except for
//     the NFT channel and known rebasing tokens where they are clamped to zero.
//   - Collaborators: CSV codecs for transfers and prices, a Market price table,
//     and a Report that joins the three asset classes per account.
//
// This package serves as the foundational logic for the `tvl` command-line
// tool.
package tvl
