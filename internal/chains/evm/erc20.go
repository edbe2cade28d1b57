package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

var (
	parsedERC20     abi.ABI
	parseERC20Once  sync.Once
	parseERC20Error error
)

func erc20() (abi.ABI, error) {
	parseERC20Once.Do(func() {
		parsedERC20, parseERC20Error = abi.JSON(strings.NewReader(erc20ABI))
	})
	return parsedERC20, parseERC20Error
}

func packTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	parsed, err := erc20()
	if err != nil {
		return nil, err
	}
	return parsed.Pack("transfer", to, amount)
}

func (a *Adapter) erc20Balance(ctx context.Context, contract, owner common.Address) (*big.Int, error) {
	parsed, err := erc20()
	if err != nil {
		return nil, err
	}

	data, err := parsed.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}

	raw, err := a.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}

	out, err := parsed.Unpack("balanceOf", raw)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
