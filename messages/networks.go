package messages

import (
	"sort"
	"strconv"
)

type Network struct {
	ID   uint64
	Name string
}

// Networks the attestation contracts are deployed on.
var Networks = map[uint64]Network{
	10:       {ID: 10, Name: "optimism"},
	8453:     {ID: 8453, Name: "base"},
	42161:    {ID: 42161, Name: "arbitrum"},
	42220:    {ID: 42220, Name: "celo"},
	11155111: {ID: 11155111, Name: "sepolia"},
	11155420: {ID: 11155420, Name: "optimism-sepolia"},
}

func IsSupportedNetwork(id uint64) bool {
	_, ok := Networks[id]
	return ok
}

func NetworkName(id uint64) string {
	if network, ok := Networks[id]; ok {
		return network.Name
	}
	return "unknown-" + strconv.FormatUint(id, 10)
}

func SupportedNetworks() []uint64 {
	ids := make([]uint64, 0, len(Networks))
	for id := range Networks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
