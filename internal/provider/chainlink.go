package provider

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/coindash/coindash/internal/models"
)

// Answers older than this are treated as a broken feed rather than a price.
const chainlinkMaxAge = 24 * time.Hour

const aggregatorABIJSON = `[
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"latestRoundData","outputs":[
		{"internalType":"uint80","name":"roundId","type":"uint80"},
		{"internalType":"int256","name":"answer","type":"int256"},
		{"internalType":"uint256","name":"startedAt","type":"uint256"},
		{"internalType":"uint256","name":"updatedAt","type":"uint256"},
		{"internalType":"uint80","name":"answeredInRound","type":"uint80"}
	],"stateMutability":"view","type":"function"}
]`

// ChainlinkClient reads on-chain USD price feeds via read-only eth_call.
// Quote-only provider of last resort: it needs nothing but an RPC endpoint,
// so it keeps working when every HTTP price API is down or rate-limited.
type ChainlinkClient struct {
	rpc    *ethclient.Client
	aggABI abi.ABI
}

func NewChainlinkClient(rpcURL string) (*ChainlinkClient, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	aggABI, err := abi.JSON(strings.NewReader(aggregatorABIJSON))
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("parse aggregator ABI: %w", err)
	}
	return &ChainlinkClient{rpc: rpc, aggABI: aggABI}, nil
}

func (c *ChainlinkClient) Name() string { return "chainlink" }

func (c *ChainlinkClient) Close() { c.rpc.Close() }

func (c *ChainlinkClient) Quote(ctx context.Context, asset models.Asset) (*models.Quote, error) {
	if asset.ChainlinkFeed == "" {
		return nil, fmt.Errorf("no chainlink feed for %s", asset.Symbol)
	}
	feed := common.HexToAddress(asset.ChainlinkFeed)

	decimals, err := c.decimals(ctx, feed)
	if err != nil {
		return nil, fmt.Errorf("decimals: %w", err)
	}

	answer, updatedAt, err := c.latestRoundData(ctx, feed)
	if err != nil {
		return nil, fmt.Errorf("latestRoundData: %w", err)
	}
	if answer.Sign() <= 0 {
		return nil, fmt.Errorf("feed %s returned non-positive answer", asset.ChainlinkFeed)
	}
	if age := time.Since(updatedAt); age > chainlinkMaxAge {
		return nil, fmt.Errorf("feed %s stale: last update %s ago", asset.ChainlinkFeed, age.Round(time.Minute))
	}

	price := scaleAnswer(answer, decimals)
	if price <= 0 {
		return nil, fmt.Errorf("invalid price: %f", price)
	}

	return &models.Quote{
		Symbol:    asset.Symbol,
		Price:     price,
		Source:    c.Name(),
		FetchedAt: updatedAt.UTC(),
	}, nil
}

func (c *ChainlinkClient) decimals(ctx context.Context, feed common.Address) (uint8, error) {
	data, err := c.aggABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	out, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &feed, Data: data}, nil)
	if err != nil {
		return 0, err
	}
	vals, err := c.aggABI.Unpack("decimals", out)
	if err != nil {
		return 0, err
	}
	dec, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", vals[0])
	}
	return dec, nil
}

func (c *ChainlinkClient) latestRoundData(ctx context.Context, feed common.Address) (*big.Int, time.Time, error) {
	data, err := c.aggABI.Pack("latestRoundData")
	if err != nil {
		return nil, time.Time{}, err
	}
	out, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &feed, Data: data}, nil)
	if err != nil {
		return nil, time.Time{}, err
	}
	vals, err := c.aggABI.Unpack("latestRoundData", out)
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(vals) != 5 {
		return nil, time.Time{}, fmt.Errorf("unexpected round data arity %d", len(vals))
	}
	answer, ok := vals[1].(*big.Int)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("unexpected answer type %T", vals[1])
	}
	updatedAtInt, ok := vals[3].(*big.Int)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("unexpected updatedAt type %T", vals[3])
	}
	return answer, time.Unix(updatedAtInt.Int64(), 0), nil
}

func scaleAnswer(answer *big.Int, decimals uint8) float64 {
	divisor := new(big.Float).SetFloat64(math.Pow10(int(decimals)))
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(answer), divisor).Float64()
	return f
}
