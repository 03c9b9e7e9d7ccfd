package liquidity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ZeroEx is a foreign 0x limit order. It is modelled for completeness only:
// the driver neither decodes nor assembles it.
type ZeroEx struct {
	Hash                common.Hash
	Maker               common.Address
	MakerToken          common.Address
	TakerToken          common.Address
	MakerAmount         *uint256.Int
	TakerAmount         *uint256.Int
	TakerTokenFeeAmount *uint256.Int
}
