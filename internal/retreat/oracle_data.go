package retreat

// knightOracleData is the pre-computed knight retreat table: a JSON object
// mapping each packed (origin, attack) key to its packed retreat options,
// gzip-compressed and base64-encoded. Keys pack as
// (originFile<<9)|(originRank<<6)|(attackFile<<3)|attackRank; options pack as
// (file<<6)|(rank<<3)|cost with cost in 0..7. Regenerated by the generator in
// oracle_gen.go.
const knightOracleData = "" +
	"H4sIAAAAAAACA11aTdIlJwy7y6xZ0OY/V0nlJKncPViyDbzFVzVjtRraGNmG9++fL//56++cvi99" +
	"M/WRRv8nbaO0bRYYavpkpq8sAKVu4DGnr5LT9FWXMX2rJclCcNwggSRtApxTwZx6T6PtJ/ZkCt+5" +
	"MpFtnqLW/eJBZG3kMaevVYW+Tyd/GfdYJcmXAQreyCH2RAzsnaBcTGMF2IqCUz99FvtIDtgakW1e" +
	"Wa171Aak62hOyA+pqycfRvo6nPWNjmnE83TW9wGc+IDDUGD/TYL89IeVZHDEOS6msRzc/9QV7+rP" +
	"9ZnnMBuBxzayzWuqdY9aiOhoRijzJenyPIz0DayA1A9zjOfp5G8RxAcchgJJBCsgjLCXlWRyxCYX" +
	"01gBTl27UtXZa5nnOBt4TJFtzl3Ne1h4WhB8xtBwvlhLF++l7D+sQclYvUOgmwVhW7DfLoYCSUol" +
	"yI9/WGlPg+C4mMYKsOrqVYG786DzOqcDp20I9q+qfb9iEdMBndPqy1vYeg9piwRWonTIg6pG536A" +
	"dWBlz3u4BKURxMed9yiQpGJ9CoP6Ze2P40ymXExjOVhJ3GGcSuUGhPnTBW+ZC/Q1c3cn1gxTu4ja" +
	"94SwPpXy4KQuDxGffRm5BBUfXxm5L5B2MBDE4nEcADuWAwTxuNIFlRx8msuE2XWx2+TCSDGHIoQq" +
	"BSCAfIMtY32OkY5siPbGyHyBVD4yMcctzxTOPfQS1UdgrYaiBuBy2wbeeoz7rcsVtY1xgwRSEYRE" +
	"z5PSGTqIpIG39i87xq257a6P/VshgQG4PvaCvHaMe8ThEtgZSxxGcxPAUjhklZtJVoCjUAhd1fA9" +
	"mUMOE8mTjKarXWfYuxR6MjLirKF2wXIp7AuheBhwnQxsteEpHflcHQhrho6f9+jjLpAj0zHPu/bn" +
	"TYLjZpIVYJlUSVc8ehazHNUU9KSq7ko4GPZO8lTlxBVKGCyXydE/TCcYWAqhBo2ODzkMBVwmB6Lx" +
	"h7V1g2MOuZlkOThzMaU0daMPKzFXUU9ZUl31JndVkPJD/Kqr3mG5JE6Bxh4GnC4LQT4LPuQwFHBJ" +
	"nAzyl5UKi6NZxs0kK8A+Xf1M5OhETmiENHrqKuLqN03djeWpy5krpDFYqoAAF1bzMOB2WYsgPuUw" +
	"FHDdXAzol5UKa6iV5WaSFWAprpImhnRjJhgS6omqZlfJRY1wlicqYzYs2THStxnxvhiYL5AKa6LV" +
	"sSoch8Ae38GFVUGimieBVF3sLUhMOwZY2nHwY/WsoVBZ2cEscPl5lr75GkCG1gvsqfCF+IY9s5aq" +
	"sCCEuTcvWKOy7yqSAEcNWQ3ANFdY4F/GLf/FZHWD4wINSAUliHBjnQ+z6l8+iSl6+Wn26VrrqomE" +
	"Q7C4EJ+iv5qcbnC5Nh7AhFNY+1/GPcfPtFFY/ts4mtgILo7Z5WIaK8BVTB1D5+AfjrlcOk8RLyaA" +
	"u1rPtzq2eTMl1xDAYJk6yp4RZhsMuhuNn1gXcBgKmDoKG4EfVqqZY8q4mMYKsE3Tx1A6uJET6jlA" +
	"L+ezSeD+X7v1sfeXuUICg2X6KDIR/odBx6OvFPYDF0MB00dhR/DDSvXjmEsuprEc3MFr+hhKp26c" +
	"k6CL58lZ0yRQCvejsyxnORPt+A/L9HFbsJ6HAccXdKbCtuBiKGD6KOwLflj7UzgmWvlgkhUgW3mk" +
	"s36lGE5ouXierNVNHzfYbvGc8jJXiGewrDjd/STW8zDg+IIeVVjsXwwFTFmF1f4PaytbJyg3k6wA" +
	"eRiAdFavFMMJNdfkU+lX19dKTQhWfpjo/C8jfFvQjwpr+x8g1UImmnsbB8CWbAcbmnumMrlSDBa7" +
	"cfMaEInJQDTrlxFOKGgfpSGGfoBUK5nsRFRro7DXPYNPaeiffwBXTVb3l3FL/nBh7KhuAySQKmqJ" +
	"raXTtc+rd00awte2EMZINdPlraPb/QFc3nrn8Y72mMIjBJhR81zP7qk0FzaW9ja85iyCjVNBRxtM" +
	"shwcJO61Sy3bsQTsaGntQOrKGQaGGkYa6q5pw05wjOVpyJhSQ9OC5YI30PFeDHobjZ+wur8YCrjg" +
	"sbz/YaXaOSZaW2caK0B8yXG1nYrJGOGXOHgxYLpCekWP9eAXzJDPqOiri+DgjgpWfpnLRfCwXCEn" +
	"SquLwRVECypsCC6GAq6Q7Ah+WKmyHJqoXpxprABrcYX0mh5+54RqyGfU9OIiOE3sjVXmw0T//sNy" +
	"hZyI/YvBlUL7KuwILoYCrpDsCH5YqbJqmlxMYxrLwYXO3063riSDCa0v5DNq+uwKuUzsjVX7y1wh" +
	"n8HywnYVrOdh0PFoVYUdwcVQwLWVHcEPK1WWVAunBs40VoA4NbCzrJNkOic0XJVP3pouvItB7SzL" +
	"W87E0cBlpG/Rjxa2Cz/AntAkiFXhOAT2+A6iz7djqyvJdIDc7Q5YanIQ/fplpBPQOO75w30vsIUP" +
	"zI/9xtbyU/xX1UuA6J5/AJPfwoL+Mm51/Uxhy9en6WEoG/IImcPF8pTkYpK3wRWqFoBJXmFZfhn3" +
	"eMtUbU+zmNSEaGBimWAL0MvjbGpSxGTWWJ5JjFlrqEmwTGp2WYlIOAx1wJ7QAIg65GIoYFJTBC2n" +
	"nfIckcbB1J6Jq8nR/WmasMF2C4brvjNXaEKwTDBKYVWO3jLbQTbs6FavN6lL90QbwYavmEdEdiaj" +
	"kJRCLO2Vb9PPvwH0Yjpxalv1AefRXUSOeneTglIYrs5y9TYmOt0flunE9kjHbIKhvt4zRVyxMr4Y" +
	"CphOFBOY4xW7SSkQF35fnNM7Ml0gvKiFezCTWkI9oqitLhCVWhes/DKXq8dhWcFX9gbDNwRDl2F/" +
	"w0cQa3EYCri0VDS7dj5zKSVfu0JaoqgVV4+GUAyWiy+ZDf3sZVSH7j/EaUPjaacsl97BfQ0hEICr" +
	"pIFoHy+jfsZWLMRHl+YFEyRlP1Sn6gBAdGs/gAtER+dkBxxWLKpiEVyhASFn3XdyR3P0A/hOHmhU" +
	"7GSBOwhjGuib9dRg1bfWgEAcVn6YuL38Yfm+m2g3rMtnuGNCBMV30ClvxPfBtO1srDZf5sJ6Pizf" +
	"JJM3fOy4GYGYkIEtQC81sofmtL1nrN4fJhqVH5bH7UK7Yd0vg0wnNAk2D82zpadH3+J2cNaoLxPf" +
	"+bI8JTK56zbaiN9ubaBmtAfWolpW15l2gh7QZ/t1i9nt7XwH9JSHiYneg9k9Z0WxsM07KM5FmiHw" +
	"C7ZqRz7nB1SAk290IN9g59aCYutgXa+xFIDsPla7imysApL+eqDyZwJqhcS5wW+tAIwAzpWVjt14" +
	"SI3fQezQ8pvEBvlxw/V7hw7p0RsWiSsq/tih4+iZlHMPBaTmOJDlbx0QZb1WO8vs2xDHqh3p25/z" +
	"uyUFsDP9yeunDx269TxuF3EdB8ykxJUSEN78sLvl9SOicCBV263qPG3oQDb2B/3SBwDuuWY0Z/F7" +
	"hoHFeJ63+7hR5HDisgcIXpboE19Vu75BicAzX8TosLSLI+l+5fmBlOtP+tWNArzZ79eduP88YWC9" +
	"H4LduQ2cRjspLm0UYq+fZvyART8BPT4+wYMQ1tJiA1t7i9CfSK3s+bfFt5QiyKvxrF/NAMHSnaev" +
	"nyFMxMhLsQu0iYPnoMW1jGK8U+EO9GIDJ0ELyfSY/OZEIR5fvna7xlo4/IU9Lqq7Y93u4ds62iK6" +
	"CGt+9y28ZL/5UIyHiK8dl0n//Q8MgxT1ziQAAA=="
