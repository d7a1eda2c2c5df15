package export

// Static page shell. The main element is column-reversed so the most recent
// day displays first even though days are streamed oldest to newest.
const (
	htmlMeta = `<meta charset="utf-8"><meta http-equiv="X-UA-COMPATIBLE" content="IE=edge"><meta name="viewport" content="width=device-width,initial-scale=1.0">`

	htmlCSS = `<link href="https://fonts.googleapis.com/css?family=Noto+Serif:400,400i,700" rel="stylesheet"><style>h2{padding-bottom:1rem;margin-bottom:1rem;border-bottom:1px solid #888;display:flex;justify-content:space-between;}.day-link{font-size:125%;color:blueviolet;text-decoration:none;}.day-text{margin-left:1rem;}.log{font-family: 'Noto Serif', serif;margin:0;}.log-main{display:flex;flex-wrap:wrap;}.user-name,.log-time{white-space:nowrap;}.log-time{margin-left:1rem;color:#333;font-style:italic;}.log-text{margin-left:1rem;}.log-reactions{padding:0.5rem;border:2px solid burlywood;}.log-reaction-type{font-weight: bold;}.log-reaction+.log-reaction,.log-reply+.log-reply{border-top:1px solid burlywood;}.log-reply{margin-left:1rem;position:relative;}.log-reply::before{position:absolute;top:0;left:-1rem;content:" ⤷";}.referenced-user{background-color:lightblue;font-weight: bold;}.mention{background-color:yellowgreen;font-weight:bold;}.channel-mention{background-color:yellow;font-weight:bold;}.multiline-code{margin:0;padding:1rem;border:1px solid black;}main{display:flex;flex-direction:column-reverse;}.years{display:flex;flex-direction:column;}.year{border:1px solid beige;padding:1.5rem 1rem 1rem 1rem;position:relative;flex:1 0;}.year-header{display:block;font-weight:bold;font-size:20px;position:absolute;top:0;left:0;line-height:1rem;padding:0.25rem;background-color:beige;}.months{display:flex;flex-wrap:wrap;}.month{flex: 0 0 15%;}@media (min-width: 800px) and (max-width:1099px){.month{flex:1 1 15%;}}@media (min-width:500px) and (max-width:799px){.month{flex:1 1 30%;}}@media (min-width: 350px) and (max-width:499px){.month{flex:1 1 50%;}}@media (max-width:349px){.month{flex:0 0 100%;}}.month-header{display:block;font-size:21px;}.toc-day{width:2rem;display:flex;justify-content:center;background-color:lightslategray;color:aliceblue;padding:0.25rem;}.days{display:flex;flex-wrap:wrap;}.toc-day:hover{background-color:aliceblue;color:lightslategray;}</style>`

	pagePrepend = `<html><head>` + htmlMeta + htmlCSS + `</head><body><main>`
	pageAppend  = `</main></body></html>`

	chatSectionPrepend = `<div id="chat" class="chat-section">`
	chatSectionAppend  = `</div>`

	tocSectionPrepend = `<div id="toc" class="toc-section">`
	tocSectionAppend  = `</div>`
)
