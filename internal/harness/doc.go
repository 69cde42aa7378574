// Package harness runs conformance scenarios through the full synthesis
// pipeline: problem decoding, pruning, compilation, combination and
// dispatch to a stub backend.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: robot_home
//	description: "Robot must return home infinitely often"
//	backend: gr1c
//	verdict: realizable
//	problem:
//	  system:
//	    propositions: [home]
//	    states:
//	      - {name: s0, label: [home]}
//	      - {name: s1}
//	    initial: [s0]
//	    transitions:
//	      - {from: s0, to: s1}
//	      - {from: s1, to: s0}
//	  spec:
//	    sys_progress: ["home"]
//	assertions:
//	  - type: outcome
//	    outcome: realizable
//	  - type: strategy_valid
//
// The problem block uses the problem-file schema of the compiler package.
//
// # Stub Backends
//
// No synthesis engine is run. Every backend listed under register (default:
// gr1c and jtlv) answers according to verdict:
//
//   - realizable: a strategy that follows the pruned system, or a single
//     all-false node without a system
//   - unrealizable: an unrealizable result with no counterexamples
//   - failure: a backend error carrying failure_message
//
// # Assertion Types
//
//   - outcome: the classified outcome of the dispatch
//   - removed: the states pruning dropped, in order
//   - fragment_contains: a formula (Plain syntax) is present in a section of
//     the fragment the backend received
//   - strategy_valid: the strategy satisfies the compiled safety formulas
//   - error_contains: the dispatch error message contains text
//   - initial_states: the states admitted by sys_init
//   - consistent: init and safety formulas are jointly satisfiable
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory run log with sequential run
// ids (run-0001, run-0002, ...), so golden snapshots are stable.
package harness
