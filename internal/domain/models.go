package domain

// Domain contains core models served by the staking backend API.

// StakePool mirrors the on-chain stake pool state the backend exposes.
type StakePool struct {
	Address            string `json:"address"`
	Owner              string `json:"owner"`
	TotalStaked        uint64 `json:"total_staked"`
	MinimumStakeAmount uint64 `json:"minimum_stake_amount"`
	CurrentDayIdx      int    `json:"current_day_idx"`
	LastCrankTime      int64  `json:"last_crank_time"`
	LastClaimedTime    int64  `json:"last_claimed_time"`
	RewardsDestination string `json:"rewards_destination"`
}

// StakeAccount is a staker's position in a pool.
type StakeAccount struct {
	Owner                 string `json:"owner"`
	Pool                  string `json:"pool"`
	Amount                uint64 `json:"amount"`
	LastClaimedTime       int64  `json:"last_claimed_time"`
	PoolMinimumAtCreation uint64 `json:"pool_minimum_at_creation"`
}

// BondAccount is a locked token sale with a linear unlock schedule.
type BondAccount struct {
	Address         string `json:"address"`
	Owner           string `json:"owner"`
	TotalAmountSold uint64 `json:"total_amount_sold"`
	TotalStaked     uint64 `json:"total_staked"`
	UnlockStartDate int64  `json:"unlock_start_date"`
	LastUnlockTime  int64  `json:"last_unlock_time"`
	Activated       bool   `json:"activated"`
}

// RewardsSummary reports claimable rewards for a pool.
type RewardsSummary struct {
	PoolAddress     string `json:"pool_address"`
	Claimable       uint64 `json:"claimable"`
	LastClaimedTime int64  `json:"last_claimed_time"`
}
