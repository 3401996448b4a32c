package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/heraldbot/herald/cache"
	"github.com/heraldbot/herald/database"
	"github.com/heraldbot/herald/discord"
	"github.com/heraldbot/herald/kvstore"
	"github.com/heraldbot/herald/render"
	"go.uber.org/zap"
)

type Bot struct {
	configs  *cache.Manager
	store    *kvstore.Store
	log      *zap.Logger
	db       database.DB
	disc     *discord.Discord
	sess     *discordgo.Session
	renderer *render.Renderer
}

type Config struct {
	Configs  *cache.Manager
	Store    *kvstore.Store
	Log      *zap.Logger
	DB       database.DB
	Renderer *render.Renderer
	Token    string
}

func NewBot(c *Config) (*Bot, error) {
	b := &Bot{
		configs:  c.Configs,
		store:    c.Store,
		log:      c.Log,
		db:       c.DB,
		renderer: c.Renderer,
	}

	disc, err := discord.NewDiscord(c.Token, c.Log.Named("discord"))
	if err != nil {
		return nil, err
	}
	b.disc = disc
	b.sess = disc.Sess

	return b, nil
}

func (b *Bot) Close() {
	b.disc.Close()
}

func (b *Bot) Run() error {
	go b.listen(b.disc.Events)
	return b.disc.Open()
}

// listen consumes the gateway event channel. Each event is handled in its own
// goroutine so slow deliveries never block unrelated events; the config cache
// is the only shared state the handlers touch.
func (b *Bot) listen(evtCh <-chan interface{}) {
	for evt := range evtCh {
		ctx := &Context{
			b: b,
			s: b.sess,
			d: b.disc,
		}

		switch e := evt.(type) {
		case *discordgo.Ready:
			go readyHandler(ctx, e)
		case *discordgo.Disconnect:
			go disconnectHandler(ctx, e)
		case *discordgo.GuildCreate:
			go guildCreateHandler(ctx, e)
		case *discordgo.GuildMembersChunk:
			go guildMembersChunkHandler(ctx, e)
		case *discordgo.GuildMemberAdd:
			go guildMemberAddHandler(ctx, e)
		case *discordgo.GuildMemberRemove:
			go guildMemberRemoveHandler(ctx, e)
		case *discordgo.GuildMemberUpdate:
			go guildMemberUpdateHandler(ctx, e)
		case *discordgo.GuildBanAdd:
			go guildBanAddHandler(ctx, e)
		case *discordgo.MessageCreate:
			go messageCreateHandler(ctx, e)
		case *discordgo.MessageUpdate:
			go messageUpdateHandler(ctx, e)
		case *discordgo.MessageDelete:
			go messageDeleteHandler(ctx, e)
		}
	}
}
