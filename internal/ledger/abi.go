package ledger

// Contract interfaces consumed by this client. The registry enumerates
// listings and creates new ones; each listing gets its own escrow contract
// instance holding orders and funds.

const registryABI = `[
	{"type":"function","name":"counter","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getListingInfo","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"endTime","type":"uint256"},{"name":"state","type":"uint256"},{"name":"price","type":"uint256"},{"name":"name","type":"string"},{"name":"description","type":"string"},{"name":"seller","type":"address"}]},
	{"type":"function","name":"getListingContractAddress","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"createListing","stateMutability":"nonpayable","inputs":[{"name":"durationSeconds","type":"uint256"},{"name":"price","type":"uint256"},{"name":"name","type":"string"},{"name":"description","type":"string"}],"outputs":[]}
]`

const escrowABI = `[
	{"type":"function","name":"getAllOrders","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"placeOrder","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"withdrawFunds","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`
