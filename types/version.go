package types

// Version is the canonical project version.
// The CLI and the wire contract share this version per the lockstep
// versioning policy.
const Version = "0.1.0"

// WireContractVersion is the wire protocol contract version. Frames carry
// it so the backend can reject clients speaking an incompatible shape.
const WireContractVersion = "0.1.0"
