package nft

import (
	"strconv"

	"pharos-russia-nft/internal/chain"
	"pharos-russia-nft/internal/config"
	xerrors "pharos-russia-nft/internal/errors"
)

// ServiceName 出现在健康检查响应中。
const ServiceName = "Pharos Russia NFT Minting"

// StatusHealthy 是健康检查固定返回的状态。
const StatusHealthy = "healthy"

// 固定特征值，顺序与已上线的消费者保持一致。
const (
	traitEdition    = "Edition"
	traitCountry    = "Country"
	traitBlockchain = "Blockchain"
	traitRarity     = "Rarity"
	traitTokenID    = "Token ID"
	traitCommunity  = "Community"
)

// ErrInvalidTokenID 在 token ID 超出集合范围时返回。
var ErrInvalidTokenID = xerrors.New(xerrors.CodeInvalidTokenID, "")

// Responder 根据启动时确定的配置生成所有响应，不持有可变状态，可被并发调用。
type Responder struct {
	chain      ChainConfig
	collection config.CollectionConfig
}

// NewResponder 构造响应器。cfg 为 nil 时使用默认配置。
func NewResponder(cfg *config.Config) *Responder {
	if cfg == nil {
		cfg = config.Default()
	}
	network := chain.PharosTestnet
	return &Responder{
		chain: ChainConfig{
			ChainID:         network.ChainID,
			ChainIDHex:      network.ChainIDHex,
			ChainName:       network.Name,
			ContractAddress: cfg.Chain.ContractAddress,
			Currency: Currency{
				Decimals: network.Currency.Decimals,
				Name:     network.Currency.Name,
				Symbol:   network.Currency.Symbol,
			},
			RPCURL: cfg.Chain.RPCURL,
		},
		collection: cfg.Collection,
	}
}

// IndexPage 返回首页模板所需的数据。
func (r *Responder) IndexPage() IndexPage {
	lo, hi := r.TokenRange()
	return IndexPage{
		Title:      ServiceName,
		Chain:      r.chain,
		MinTokenID: lo,
		MaxTokenID: hi,
		ImagePath:  r.collection.ImagePath,
	}
}

// Health 永远返回 healthy。
func (r *Responder) Health() Health {
	return Health{Service: ServiceName, Status: StatusHealthy}
}

// ChainConfig 返回链配置的副本。
func (r *Responder) ChainConfig() ChainConfig {
	return r.chain
}

// TokenRange 返回合法 token ID 的闭区间。
func (r *Responder) TokenRange() (uint64, uint64) {
	return r.collection.MinTokenID, r.collection.MaxTokenID
}

// ValidTokenID 判断 token ID 是否落在集合范围内。
func (r *Responder) ValidTokenID(tokenID int64) bool {
	lo, hi := r.TokenRange()
	return tokenID >= 1 && uint64(tokenID) >= lo && uint64(tokenID) <= hi
}

// Metadata 生成指定 token 的元数据。图片地址由请求的 scheme 与 host 拼出。
func (r *Responder) Metadata(tokenID int64, scheme, host string) (*TokenMetadata, error) {
	if !r.ValidTokenID(tokenID) {
		return nil, xerrors.New(xerrors.CodeInvalidTokenID, "",
			xerrors.WithMetadata("token_id", strconv.FormatInt(tokenID, 10)))
	}

	baseURL := scheme + "://" + host
	return &TokenMetadata{
		Attributes: []Attribute{
			{TraitType: traitEdition, Value: "Pharos Russia"},
			{TraitType: traitCountry, Value: "Russia"},
			{TraitType: traitBlockchain, Value: "PHAROS"},
			{TraitType: traitRarity, Value: "Exclusive"},
			{TraitType: traitTokenID, Value: tokenID},
			{TraitType: traitCommunity, Value: "HrumDrops"},
		},
		Description: r.collection.Description,
		ExternalURL: r.collection.ExternalURL,
		Image:       baseURL + r.collection.ImagePath,
		Name:        r.collection.NamePrefix + strconv.FormatInt(tokenID, 10),
	}, nil
}
