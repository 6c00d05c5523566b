package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/TEENet-io/mintwrap-go/contracts/NFTMinter"
	"github.com/TEENet-io/mintwrap-go/contracts/NFTWrapper"
)

const (
	ENV_CONFIG_FILE_PATH = "MINTWRAP_CONFIG"

	DefaultChainId     = "56" // BNB smart chain
	DefaultExplorerUrl = "https://bscscan.com"
	DefaultHttpIp      = "127.0.0.1"
	DefaultHttpPort    = "8080"
	DefaultLogLevel    = "info"
)

// SetConfigDefaults puts the deployed contract configuration
// under every key a config file or the environment may leave out.
func SetConfigDefaults(v *viper.Viper) {
	v.SetDefault("MINT_CONTRACT_ADDRESS", NFTMinter.DefaultContractAddress().Hex())
	v.SetDefault("WRAP_CONTRACT_ADDRESS", NFTWrapper.DefaultContractAddress().Hex())
	v.SetDefault("MINT_PRICE", NFTMinter.DefaultMintPrice)
	v.SetDefault("DEFAULT_TOKEN_URI", NFTWrapper.DefaultTokenURI)
	v.SetDefault("CHAIN_ID", DefaultChainId)
	v.SetDefault("EXPLORER_URL", DefaultExplorerUrl)
	v.SetDefault("HTTP_IP", DefaultHttpIp)
	v.SetDefault("HTTP_PORT", DefaultHttpPort)
	v.SetDefault("LOG_LEVEL", DefaultLogLevel)
}

// InitializeViper reads the config file at filePath into v, if given.
// Environment variables override the file.
func InitializeViper(v *viper.Viper, filePath string) error {
	v.AutomaticEnv()
	SetConfigDefaults(v)

	if filePath == "" {
		return nil
	}
	if !FileExists(filePath) {
		return fmt.Errorf("configuration file not found: %s", filePath)
	}

	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	return nil
}

func PrepareMinterConfig(v *viper.Viper) *MinterConfig {
	return &MinterConfig{
		EthRpcUrl:        v.GetString("ETH_RPC_URL"),
		EthUserPriv:      v.GetString("ETH_USER_PRIV"),
		EthKeystoreFile:  v.GetString("ETH_KEYSTORE_FILE"),
		EthKeystorePass:  v.GetString("ETH_KEYSTORE_PASS"),
		MintContractAddr: v.GetString("MINT_CONTRACT_ADDRESS"),
		WrapContractAddr: v.GetString("WRAP_CONTRACT_ADDRESS"),
		MintPrice:        v.GetString("MINT_PRICE"),
		DefaultTokenURI:  v.GetString("DEFAULT_TOKEN_URI"),
		ChainId:          v.GetString("CHAIN_ID"),
		ExplorerUrl:      v.GetString("EXPLORER_URL"),
	}
}

func PrepareServerConfig(v *viper.Viper) *ServerConfig {
	return &ServerConfig{
		Minter:   PrepareMinterConfig(v),
		HttpIp:   v.GetString("HTTP_IP"),
		HttpPort: v.GetString("HTTP_PORT"),
	}
}
