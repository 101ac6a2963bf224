package nft

// 字段按字母序声明，使 JSON 输出与原服务（键排序）保持一致。

// Currency 描述链的原生代币。
type Currency struct {
	Decimals int    `json:"decimals"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
}

// ChainConfig 是铸造页面连接钱包所需的链参数。
type ChainConfig struct {
	ChainID         uint64   `json:"chainId"`
	ChainIDHex      string   `json:"chainIdHex"`
	ChainName       string   `json:"chainName"`
	ContractAddress string   `json:"contractAddress"`
	Currency        Currency `json:"currency"`
	RPCURL          string   `json:"rpcUrl"`
}

// Attribute 是元数据中的单个特征，Value 可以是字符串或整数。
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// TokenMetadata 是市场索引器按 token ID 拉取的元数据文档。
type TokenMetadata struct {
	Attributes  []Attribute `json:"attributes"`
	Description string      `json:"description"`
	ExternalURL string      `json:"external_url"`
	Image       string      `json:"image"`
	Name        string      `json:"name"`
}

// Health 是存活探针的响应体。
type Health struct {
	Service string `json:"service"`
	Status  string `json:"status"`
}

// IndexPage 是渲染首页模板时使用的数据。
type IndexPage struct {
	Title      string
	Chain      ChainConfig
	MinTokenID uint64
	MaxTokenID uint64
	ImagePath  string
}
