package usage

import "sort"

// Reconcile joins aggregated GPU-hours with quota ceilings into the ordered
// account entries of the report.
//
// Accounts keep their first-appearance order from the accumulation and
// partitions are sorted by name, so identical inputs always produce identical
// output. Quota limits are attached verbatim: an account missing from the
// registry map keeps a nil limit. Costs appear only for partitions that have
// a configured rate.
func Reconcile(acc Accumulation, quotas map[string]*float64, rates map[string]float64) []AccountUsage {
	out := make([]AccountUsage, 0, len(acc.Accounts))
	for _, account := range acc.Accounts {
		partitions := acc.ByAccount[account]

		names := make([]string, 0, len(partitions))
		for name := range partitions {
			names = append(names, name)
		}
		sort.Strings(names)

		entry := AccountUsage{
			Account:    account,
			QuotaLimit: quotas[account],
			Partitions: make([]PartitionUsage, 0, len(names)),
		}
		for _, name := range names {
			hours := partitions[name]
			part := PartitionUsage{Partition: name, GPUHours: hours}
			if rate, ok := rates[name]; ok && rate > 0 {
				part.Cost = hours * rate
			}
			entry.TotalGPUHours += part.GPUHours
			entry.TotalCost += part.Cost
			entry.Partitions = append(entry.Partitions, part)
		}
		out = append(out, entry)
	}
	return out
}
