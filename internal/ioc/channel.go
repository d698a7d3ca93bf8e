package ioc

import (
	"gitee.com/flycash/alert-platform/internal/pkg/liveconn"
	"gitee.com/flycash/alert-platform/internal/service/channel"
	"gitee.com/flycash/alert-platform/internal/service/channel/sms/client"
	"github.com/go-telegram/bot"
	"github.com/gotomicro/ego/client/ehttp"
	"github.com/gotomicro/ego/core/econf"
	"github.com/slack-go/slack"
	"gopkg.in/gomail.v2"
)

func InitEmailChannel() *channel.EmailChannel {
	type Config struct {
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		From        string `yaml:"from"`
		ViewURLBase string `yaml:"viewUrlBase"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("email", &cfg); err != nil {
		panic(err)
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return channel.NewEmailChannel(dialer, cfg.From, cfg.ViewURLBase)
}

func InitSMSChannel(clients map[string]client.Client) *channel.SMSChannel {
	type Config struct {
		Provider   string `yaml:"provider"`
		SignName   string `yaml:"signName"`
		TemplateID string `yaml:"templateId"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("sms", &cfg); err != nil {
		panic(err)
	}
	return channel.NewSMSChannel(clients, cfg.Provider, cfg.SignName, cfg.TemplateID)
}

func InitChatBotChannel() *channel.ChatBotChannel {
	type Config struct {
		Token string `yaml:"token"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("chatbot", &cfg); err != nil {
		panic(err)
	}
	b, err := bot.New(cfg.Token)
	if err != nil {
		panic(err)
	}
	return channel.NewChatBotChannel(b)
}

func InitTeamChatChannel() *channel.TeamChatChannel {
	type Config struct {
		Token string `yaml:"token"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("teamchat", &cfg); err != nil {
		panic(err)
	}
	return channel.NewTeamChatChannel(slack.New(cfg.Token))
}

func InitPushChannel() *channel.PushChannel {
	type Config struct {
		ServerKey string `yaml:"serverKey"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("push", &cfg); err != nil {
		panic(err)
	}
	httpClient := ehttp.Load("http.push").Build()
	return channel.NewPushChannel(httpClient, cfg.ServerKey)
}

func InitLiveRegistry() liveconn.Registry {
	return liveconn.NewWebSocketRegistry()
}

// InitChannelTable 组装全部投递渠道，每个渠道都包上链路追踪和指标采集
func InitChannelTable(
	smsClients map[string]client.Client,
	registry liveconn.Registry,
) *channel.Table {
	base := []channel.Channel{
		InitEmailChannel(),
		InitSMSChannel(smsClients),
		InitChatBotChannel(),
		InitTeamChatChannel(),
		channel.NewSocketChannel(registry),
		InitPushChannel(),
	}
	wrapped := make([]channel.Channel, 0, len(base))
	for _, ch := range base {
		wrapped = append(wrapped, channel.NewTracingChannel(channel.NewMetricsChannel(ch)))
	}
	return channel.NewTable(wrapped...)
}
