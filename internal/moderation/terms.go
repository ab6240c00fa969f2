package moderation

// defaultTerms is the built-in blocked word/phrase dictionary. Entries are
// matched case-insensitively; multi-word entries require at least one
// separator at each internal space. The list mixes English, transliterated
// and Cyrillic Russian, and Spanish terms.
var defaultTerms = []string{
	"2g1c", "acrotomophilia", "alabamahotpocket", "alaskanpipeline", "anal", "anilingus", "anus", "apeshit", "arsehole", "arsebandit", "arsefucker", "ass", "assclown", "asshole", "assmunch", "asswipe",
	"autoerotic", "babeland", "babybatter", "babyjuice", "ballgag", "ballgravy", "ballkicking", "balllicking", "ballsack", "ballsucking", "bangbros", "bangbus", "bareback", "barelylegal",
	"barenaked", "bastard", "bastardo", "bastinado", "bbw", "bdsm", "beaner", "beaners", "beavercleaver", "beaverlips", "beastiality", "bestiality", "bigblack", "bigbreasts",
	"bigknockers", "bigtits", "bimbos", "birdlock", "bitch", "bitchass", "bitches", "bitchslap", "blackcock", "blondeaction", "blowjob", "bluewaffle", "blumpkin", "bollocks", "bondage",
	"boner", "boob", "boobs", "bootycall", "brownshowers", "brunetteaction", "bukkake", "bulldyke", "bulletvibe", "bullshit", "bunghole", "busty", "butt", "buttcheeks", "buttfuck",
	"butthole", "cameltoe", "camgirl", "camslut", "camwhore", "carpetmuncher", "chocolaterosebuds", "cialis", "circlejerk", "clevelandsteamer", "clit", "clitoris", "cloverclamps", "clusterfuck",
	"cock", "cockblock", "cockgoblin", "cockmunch", "cocksucker", "cockwomble", "cocks", "coprolagnia", "coprophilia", "cornhole", "coon", "coons", "crapsack", "creampie", "cum",
	"cumdump", "cumming", "cunt", "cuntface", "cuntpunch", "darkie", "daterape", "deepthroat", "dendrophilia", "dick", "dickbag", "dickcheese", "dickslap", "dickwad", "dildo", "dingleberry",
	"dingleberries", "dipshit", "dirtypillows", "dirtysanchez", "doggiestyle", "doggystyle", "dolcett", "domination", "dominatrix", "dommes", "donkeypunch", "doubledong", "doublepenetration",
	"dpaction", "dryhump", "dvda", "eatmyass", "ecchi", "ejaculation", "erotic", "erotism", "escort", "eunuch", "fag", "faggot", "fecal", "felch", "fellatio", "feltch", "femalesquirting",
	"femdom", "figging", "fingerbang", "fingering", "fisting", "footfetish", "footjob", "frotting", "fuck", "fuckass", "fuckbucket", "fuckbuttons", "fuckface", "fuckin", "fucking", "fucknugget",
	"fuckoff", "fuckstick", "fucktards", "fuckup", "fuckwit", "fudgepacker", "futanari", "gangbang", "gaysex", "genitals", "giantcock", "girlontop", "girlsgonewild", "goatcx", "goatse", "goddamn",
	"gokkun", "goldenshower", "goodpoop", "googirl", "goregasm", "grope", "groupsex", "gspot", "guro", "handjob", "hardcore", "hentai", "homoerotic", "honkey", "hooker", "horny", "hotcarl",
	"hotchick", "howtokill", "howtomurder", "hugefat", "humping", "incest", "intercourse", "jackoff", "jailbait", "jellydonut", "jerkoff", "jigaboo", "jiggaboo", "jiggerboo", "jizz", "juggs",
	"kike", "kinbaku", "kinkster", "kinky", "knobbing", "leatherrestraint", "leatherstraightjacket", "lemonparty", "livesex", "lolita", "lovemaking", "malesquirting", "masturbate", "masturbating",
	"masturbation", "menageatrois", "milf", "missionaryposition", "mong", "motherfucker", "moundofvenus", "mrhands", "muffdiver", "muffdiving", "nambla", "nawashi", "negro", "neonazi", "nigga", "nigger",
	"nignog", "nimphomania", "nipple", "nipples", "nsfw", "nude", "nudity", "nutten", "nympho", "nymphomania", "octopussy", "omorashi", "onecuptwogirls", "oneguyonejar", "orgasm", "orgy",
	"paedophile", "paki", "panties", "panty", "pedobear", "pedophile", "pegging", "penis", "phonesex", "pieceofshit", "pikey", "piss", "pissbucket", "pissed", "pissflaps", "pisspig", "playboy",
	"pleasurechest", "polesmoker", "ponyplay", "poon", "poontang", "punany", "poopchute", "porn", "porno", "pornography", "princealbertpiercing", "pthc", "pubes", "pussy", "pussyfart", "queaf",
	"queef", "quim", "raghead", "ragingboner", "rape", "raping", "rapist", "rectum", "reversecowgirl", "rimjob", "rimming", "rosypalm", "rustytrombone", "sadism", "santorum", "scat", "schlong",
	"scissoring", "semen", "sex", "sexcam", "sexo", "sexy", "sexual", "sexually", "sexuality", "shavedbeaver", "shavedpussy", "shemale", "shibari", "shit", "shitbag", "shitblimp", "shitcunt",
	"shithead", "shitlord", "shitsucker", "shitty", "shota", "shrimping", "skeet", "slanteye", "slut", "smut", "snatch", "snowballing", "sodomize", "sodomy", "spastic", "spic",
	"splooge", "spooge", "spreadlegs", "spunk", "strapon", "strappado", "stripclub", "styledoggy", "suck", "sucks", "suicidegirls", "sultrywomen", "swastika", "swinger", "taintedlove", "tastemy",
	"teabagging", "threesome", "throating", "thumbzilla", "thundercunt", "tiedup", "tightwhite", "tit", "tits", "titties", "titty", "tongueina", "topless", "tosser", "tossbag", "towelhead",
	"tranny", "tribadism", "tubgirl", "tushy", "twat", "twatface", "twatwaffle", "twink", "twinkie", "twogirlsonecup", "undressing", "upskirt", "urethraplay", "urophilia", "vagina", "venesmound",
	"viagra", "vibrator", "violetwand", "vorarephilia", "voyeur", "voyeurweb", "vulva", "wank", "wankjob", "wankstain", "wetback", "wetdream", "whitepower", "whore", "whorebag", "whoremonger",
	"worldsex", "wrappingmen", "wrinkledstarfish", "xxx", "yaoi", "yellowshowers", "yiffy",
	"zoophilia", "bychara", "byk", "chernozhopyi", "dolboy'eb", "ebalnik", "ebalo", "ebalom sch'elkat", "gol", "mudack", "opizdenet", "osto'eblo", "ostokhuitel'no", "ot'ebis", "otmudohat", "otpizdit", "otsosi", "padlo", "pedik", "perdet", "petuh", "pidar gnoinyj", "pizda", "pizdato", "pizdatyi", "piz'det", "pizdetc", "pizdoi nakryt'sja", "pizd'uk", "piz`dyulina", "podi ku'evo", "poeben", "po'imat' na konchik", "po'iti posrat", "po khuy", "poluchit pizdy", "pososi moyu konfetku", "prissat", "proebat", "promudobl'adsksya pizdopro'ebina", "propezdoloch", "prosrat", "raspeezdeyi", "raspizdatyi", "raz'yebuy", "raz'yoba", "s'ebat'sya", "shalava", "styervo", "sukin syn", "svodit posrat", "svoloch", "trakhat'sya", "trimandoblydskiy pizdoproyob", "ubl'yudok", "uboy", "u'ebitsche", "vafl'a", "vafli lovit", "v pizdu", "vyperdysh", "vzdrochennyi", "yeb vas", "za'ebat", "zaebis", "zalupa", "zalupat", "zasranetc", "zassat", "zlo'ebuchy",
	"бздёнок", "блядки", "блядовать", "блядство", "блядь", "бугор", "во пизду", "встать раком", "выёбываться", "гандон", "говно", "говнюк", "голый", "дать пизды", "дерьмо", "дрочить", "другой дразнится", "ёбарь", "ебать", "ебать-копать", "ебло", "ебнуть", "ёб твою мать", "жопа", "жополиз", "играть на кожаной флейте", "измудохать", "каждый дрочит как он хочет", "какая разница", "как два пальца обоссать", "курите мою трубку", "лысого в кулаке гонять", "малофья", "манда", "мандавошка", "мент", "муда", "мудило", "мудозвон", "наебать", "наебениться", "наебнуться", "на фиг", "на хуй", "на хую вертеть", "на хуя", "нахуячиться", "невебенный", "не ебет", "ни за хуй собачу", "ни хуя", "обнаженный", "обоссаться можно", "один ебётся", "опесдол", "офигеть", "охуеть", "охуительно", "половое сношение", "секс", "сиськи", "спиздить", "срать", "ссать", "траxать", "ты мне ваньку не валяй", "фига", "хапать", "хер с ней", "хер с ним", "хохол", "хрен", "хуёво", "хуёвый",
	"хуем груши околачивать", "ебанат", "ебанутый", "хуеплет", "хуило", "пидор", "хуиней страдать", "хуиня", "хуй", "хуйнуть", "хуй пинать",
	"Asesinato", "asno", "bastardo", "Bollera", "Cabrón", "Caca", "Chupada", "Chupapollas", "Chupetón", "concha", "Concha de tu madre", "Coño", "Coprofagía", "Culo", "Drogas", "Esperma", "Fiesta de salchichas", "Follador", "Follar", "Gilipichis", "Gilipollas", "Hacer una paja", "Haciendo el amor", "Heroína", "Hija de puta", "Hijaputa", "Hijo de puta", "Hijoputa", "Idiota", "Imbécil", "infierno", "Jilipollas", "Kapullo", "Lameculos", "Maciza", "Macizorra", "maldito", "Mamada", "Marica", "Maricón", "Mariconazo", "martillo", "Mierda", "Nazi", "Orina", "Pedo", "Pendejo", "Pervertido", "Pezón", "Pinche", "Pis", "Prostituta", "Puta", "Racista", "Ramera", "Sádico", "Sexo oral", "Soplagaitas", "Soplapollas", "Tetas grandes", "Tía buena", "Travesti", "Trio", "Verga", "vete a la mierda",
}

// DefaultTerms returns a copy of the built-in dictionary.
func DefaultTerms() []string {
	out := make([]string, len(defaultTerms))
	copy(out, defaultTerms)
	return out
}
