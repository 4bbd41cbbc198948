package loom

// defaultArchetypeMapSize sizes a World's archetype-by-bitset map's initial
// bucket count. Purely a micro-allocation hint; undersizing it costs a few
// rehashes, never correctness.
const defaultArchetypeMapSize = 16
